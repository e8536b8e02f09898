package version

import (
	"fmt"
	"time"
)

// Заполняются линкером через -ldflags.
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
)

// Номер сборки — количество дней от старта проекта до BuildDate.
var projectEpoch = time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

// BuildInfo — метаданные сборки в структурном виде.
type BuildInfo struct {
	Number    int    `json:"number"`
	BuildDate string `json:"buildDate"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	Error     string `json:"error,omitempty"`
}

// buildNumber считает номер сборки из BuildDate.
// Часы вместо суток, чтобы не споткнуться о переводы времени.
func buildNumber() (int, error) {
	if BuildDate == "" {
		return 0, fmt.Errorf("BuildDate is empty")
	}

	t, err := time.ParseInLocation("2006-01-02", BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid BuildDate %q: %w", BuildDate, err)
	}
	if t.Before(projectEpoch) {
		return 0, fmt.Errorf("BuildDate %s is before project epoch", BuildDate)
	}

	return int(t.Sub(projectEpoch).Hours() / 24), nil
}

// Info безопасно вызывать в любой момент: при пустых ldflags номер
// сборки просто не вычисляется.
func Info() BuildInfo {
	info := BuildInfo{
		BuildDate: BuildDate,
		Commit:    BuildCommit,
		Branch:    BuildBranch,
	}

	n, err := buildNumber()
	if err != nil {
		info.Error = err.Error()
		return info
	}

	info.Number = n
	return info
}

// String — человекочитаемая строка для стартового лога.
func String() string {
	info := Info()
	if info.Error != "" {
		return fmt.Sprintf("build unknown (%s)", info.Error)
	}

	commit := info.Commit
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("build %d (%s) commit[%s]", info.Number, info.BuildDate, commit)
}
