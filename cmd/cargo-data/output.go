package main

import (
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/pkg/configuration"
)

func appLogger() *logrus.Logger {
	return configuration.Use().Logger()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
