package onnx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// LoadClassNames はクラス名リストファイルを読み込みます。
// 拡張子が .yaml / .yml の場合はYAMLのリスト、それ以外はJSON配列として解釈します。
// インデックスがそのままクラスインデックスになります。
func LoadClassNames(path string) (entity.ClassNameTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.ClassNameTable{}, fmt.Errorf("failed to read class names: %w", err)
	}

	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &names)
	default:
		err = json.Unmarshal(b, &names)
	}
	if err != nil {
		return entity.ClassNameTable{}, fmt.Errorf("failed to parse class names %s: %w", path, err)
	}
	if len(names) == 0 {
		return entity.ClassNameTable{}, fmt.Errorf("class names file %s is empty", path)
	}
	return entity.NewClassNameTable(names), nil
}
