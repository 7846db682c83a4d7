package quotes

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadInstrumentsFile reads scrip codes from a watchlist file: one code per
// line, blank lines and '#' comments ignored, inline comments stripped. A
// missing file yields an empty list, not an error.
func LoadInstrumentsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open instruments file: %w", err)
	}
	defer f.Close()

	var codes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line != "" {
			codes = append(codes, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read instruments file: %w", err)
	}
	return codes, nil
}
