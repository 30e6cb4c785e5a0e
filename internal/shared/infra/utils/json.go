package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica data en T y llama a handler. Los mensajes
// que no se pueden decodificar se registran y se descartan.
func UnmarshalAndHandle[T any](log *zap.Logger, data []byte, handler func(T)) bool {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.Error(err))
		return false
	}
	handler(evt)
	return true
}
