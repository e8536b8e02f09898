package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log — глобальный логгер приложения. Заполняется в Init.
var Log *logrus.Logger

// Init настраивает глобальный логгер по переменным окружения.
// Вызывается один раз при старте, до создания сессий.
func Init() {
	Log = logrus.New()
	Log.SetLevel(levelFromEnv())
	Log.SetFormatter(formatterFromEnv())
	Log.SetOutput(os.Stdout)
}

// Component возвращает логгер подсистемы: движок, AI монстров и
// хранилище метят свои записи единообразно.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// levelFromEnv читает LOG_LEVEL. По умолчанию info; боевую математику
// удобно смотреть на debug.
func levelFromEnv() logrus.Level {
	raw, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// formatterFromEnv читает LOG_FORMAT: json для сбора логов в
// продакшене, иначе текст с короткой меткой времени — при тике 60мс
// миллисекунды важнее даты.
func formatterFromEnv() logrus.Formatter {
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
		ForceColors:     true,
	}
}
