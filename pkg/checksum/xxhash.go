package checksum

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Sum devuelve el xxhash de un contenido en hexadecimal. Sirve para
// identificar uploads idénticos en los logs y en la respuesta.
func Sum(content []byte) string {
	digest := xxhash.New()
	_, _ = digest.Write(content)
	return hex.EncodeToString(digest.Sum(nil))
}
