package clusterlib

import (
	"os"

	"github.com/op/go-logging"
)

var Log = logging.MustGetLogger("clusterlib")

func init() {
	var format = logging.MustStringFormatter(`%{color}%{time:15:04:05.000} ▶ %{level:.4s} %{shortfile}%{color:reset} %{message}`)
	var backend = logging.NewLogBackend(os.Stdout, "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)

	logging.SetBackend(backendFormatter)
}

// SetLogLevel adjusts verbosity at runtime; cmd/clusterlibctl wires this to
// the config's logLevel field.
func SetLogLevel(level string) error {
	parsed, err := logging.LogLevel(level)

	if err != nil {
		return err
	}

	logging.SetLevel(parsed, "clusterlib")

	return nil
}
