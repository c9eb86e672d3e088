package dataset

import (
	"io"
	"os"
)

func openTextFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
