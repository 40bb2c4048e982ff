package audit

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadKeysFile reads flag keys from filePath, one per line. Blank lines and
// lines starting with '#' are skipped. Commas split a line into several keys.
func ReadKeysFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var keys []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, parseList(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return keys, nil
}
