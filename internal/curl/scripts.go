package curl

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindScripts lists shell scripts under root. Hidden directories and
// node_modules are skipped.
func FindScripts(root string) ([]string, error) {
	var scripts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".sh", ".bash":
			scripts = append(scripts, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(scripts)
	return scripts, nil
}

// CommandsFromScript extracts the curl commands from a shell script, joining
// backslash continuations.
func CommandsFromScript(content string) []string {
	var (
		commands []string
		current  strings.Builder
	)

	flush := func() {
		cmd := strings.TrimSpace(current.String())
		current.Reset()
		if strings.HasPrefix(cmd, commandPrefix) {
			commands = append(commands, cmd)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if current.Len() == 0 && (trimmed == "" || strings.HasPrefix(trimmed, "#")) {
			continue
		}
		if strings.HasSuffix(trimmed, "\\") {
			current.WriteString(strings.TrimSpace(strings.TrimSuffix(trimmed, "\\")))
			current.WriteString(" ")
			continue
		}
		current.WriteString(trimmed)
		flush()
	}
	if current.Len() > 0 {
		flush()
	}
	return commands
}
