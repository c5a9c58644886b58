// Package fastembed embeds text locally with ONNX sentence-transformer models.
package fastembed

import "fmt"

// ProviderName labels metrics and logs.
const ProviderName = "fastembed"

// DefaultModel is all-MiniLM-L6-v2, 384 dimensions.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config holds the local model settings.
type Config struct {
	Model string
	// Dimensions, when set, must match the model output.
	Dimensions int
	CacheDir   string
	MaxLength  int
}

// models maps accepted names to a canonical model name. The canonical
// names are the fastembed-go model identifiers.
var models = map[string]string{
	"sentence-transformers/all-MiniLM-L6-v2": "fast-all-MiniLM-L6-v2",
	"all-MiniLM-L6-v2":                       "fast-all-MiniLM-L6-v2",
	"fast-all-MiniLM-L6-v2":                  "fast-all-MiniLM-L6-v2",
	"BAAI/bge-small-en-v1.5":                 "fast-bge-small-en-v1.5",
	"fast-bge-small-en-v1.5":                 "fast-bge-small-en-v1.5",
	"BAAI/bge-base-en-v1.5":                  "fast-bge-base-en-v1.5",
	"fast-bge-base-en-v1.5":                  "fast-bge-base-en-v1.5",
}

var dimensions = map[string]int{
	"fast-all-MiniLM-L6-v2":  384,
	"fast-bge-small-en-v1.5": 384,
	"fast-bge-base-en-v1.5":  768,
}

// resolveModel maps a model name to its canonical name and output dimension.
// An empty name selects DefaultModel.
func resolveModel(name string) (string, int, error) {
	if name == "" {
		name = DefaultModel
	}
	m, ok := models[name]
	if !ok {
		return "", 0, fmt.Errorf("unsupported model %q", name)
	}
	return m, dimensions[m], nil
}

// Dimensions returns the output size of a supported model, or 0.
func Dimensions(name string) int {
	_, dim, err := resolveModel(name)
	if err != nil {
		return 0
	}
	return dim
}
