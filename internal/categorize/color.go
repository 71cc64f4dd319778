package categorize

import (
	"fmt"
	"hash/fnv"
)

// Color derives a display color from a category name: the FNV-1a 32-bit
// hash of the name modulo 360 is the hue, saturation and lightness are
// fixed at 70% and 50%.
func Color(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", h.Sum32()%360)
}
