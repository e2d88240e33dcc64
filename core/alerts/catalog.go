package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/vppsim/core/model"
)

// ErrEmptyCatalog is returned when a catalog holds no templates.
var ErrEmptyCatalog = errors.New("alert catalog is empty")

// DefaultCatalog returns the built-in alert templates.
func DefaultCatalog() []model.AlertTemplate {
	return []model.AlertTemplate{
		{Level: model.LevelWarning, Message: "Grid Frequency Deviation High (>50.05Hz)"},
		{Level: model.LevelCritical, Message: "Asset Link Lost: Wind Farm Kraków"},
		{Level: model.LevelInfo, Message: "New Dispatch Order Received"},
		{Level: model.LevelWarning, Message: "Voltage Sag Detected in Region B"},
		{Level: model.LevelInfo, Message: "Market Price Updated"},
		{Level: model.LevelCritical, Message: "Inverter Communication Failure: PV Warsaw"},
	}
}

type catalogFile struct {
	Templates []model.AlertTemplate `json:"templates" yaml:"templates"`
}

// LoadCatalog reads templates from a JSON or YAML file.
func LoadCatalog(path string) ([]model.AlertTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alert catalog: %w", err)
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeCatalog(f, ext)
}

// DecodeCatalog reads templates from r in the given format ("yaml" or "json").
// Levels are normalised and validated.
func DecodeCatalog(r io.Reader, format string) ([]model.AlertTemplate, error) {
	var cf catalogFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cf); err != nil {
			return nil, fmt.Errorf("decode alert catalog: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cf); err != nil {
			return nil, fmt.Errorf("decode alert catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
	if err := validateCatalog(cf.Templates); err != nil {
		return nil, err
	}
	return cf.Templates, nil
}

func validateCatalog(tpls []model.AlertTemplate) error {
	if len(tpls) == 0 {
		return ErrEmptyCatalog
	}
	for i := range tpls {
		lvl, err := model.ParseLevel(string(tpls[i].Level))
		if err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		tpls[i].Level = lvl
		if strings.TrimSpace(tpls[i].Message) == "" {
			return fmt.Errorf("template %d: message is empty", i)
		}
	}
	return nil
}
