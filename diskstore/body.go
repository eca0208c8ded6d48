package diskstore

import (
	"os"
	"path/filepath"
)

func writeBody(dir, name string, body []byte) error {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteAt(body, 0); err != nil {
		return err
	}
	return f.Truncate(int64(len(body)))
}

func readBody(dir, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, name))
}
