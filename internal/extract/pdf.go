package extract

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// pageCount reports the number of pages when pdfcpu can read the document.
// It is log enrichment only; the model reads the bytes, not pdfcpu.
func pageCount(data []byte) (n int, ok bool) {
	if len(data) == 0 {
		return 0, false
	}
	disableConfigDir.Do(api.DisableConfigDir)

	defer func() {
		if recover() != nil {
			n, ok = 0, false
		}
	}()

	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, false
	}
	return n, true
}
