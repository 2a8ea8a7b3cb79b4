// Package onnx はONNX Runtimeを使用した食品分類モデルのアダプターを提供します。
package onnx

import "os"

// Config holds configuration for the ONNX classifier model.
type Config struct {
	ModelPath         string // Path to the exported .onnx weights
	ClassNamesPath    string // Ordered class list (.json array or .yaml list)
	SharedLibraryPath string // onnxruntime shared library; empty uses the platform default
	InputName         string // Graph input name
	OutputName        string // Graph output name
}

// LoadConfig loads classifier configuration from environment variables.
func LoadConfig() Config {
	return Config{
		ModelPath:         getenv("MODEL_PATH", "models/custom_food_resnet18.onnx"),
		ClassNamesPath:    getenv("CLASS_NAMES_PATH", "models/custom_food_class_names.json"),
		SharedLibraryPath: os.Getenv("ONNXRUNTIME_LIB_PATH"),
		InputName:         getenv("MODEL_INPUT_NAME", "input"),
		OutputName:        getenv("MODEL_OUTPUT_NAME", "output"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
