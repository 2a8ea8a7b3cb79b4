package entity

// ClassNameTable はクラスインデックスからラベル文字列への読み取り専用の対応表です。
// 起動時に一度だけ生成され、以後変更されません。
type ClassNameTable struct {
	names []string
}

// NewClassNameTable は与えられたラベル列のコピーからClassNameTableを生成します。
func NewClassNameTable(names []string) ClassNameTable {
	cp := make([]string, len(names))
	copy(cp, names)
	return ClassNameTable{names: cp}
}

// Len はクラス数（NUM_CLASSES）を返します。
func (t ClassNameTable) Len() int {
	return len(t.names)
}

// Name はインデックスiのラベルを返します。
func (t ClassNameTable) Name(i int) string {
	return t.names[i]
}
