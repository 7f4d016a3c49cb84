package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger define a interface para logging estruturado.
// Handlers, Services e Repositórios dependem apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogEntry define a estrutura de um log para garantir o formato JSON.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// SimpleLogger escreve uma linha JSON por entrada usando um *log.Logger.
type SimpleLogger struct {
	logLevel string // "debug", "info", "warn", "error"
	out      *log.Logger
}

// NewLogger cria um Logger que escreve em stdout.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stdout)
}

// NewLoggerWithWriter permite redirecionar a saída (usado nos testes e no CLI).
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &SimpleLogger{
		logLevel: strings.ToLower(level),
		out:      log.New(w, "", 0),
	}
}

// levels ordena a severidade; níveis desconhecidos caem em "info".
var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
	"fatal": 4,
}

func (l *SimpleLogger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.logLevel]
	if !ok {
		currentLevel = levels["info"]
	}
	targetLevel, ok := levels[strings.ToLower(level)]
	if !ok {
		return false
	}
	return targetLevel >= currentLevel
}

// logf formata a entrada como JSON e a escreve na saída configurada.
func (l *SimpleLogger) logf(level, msg string, fields map[string]interface{}, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	jsonBytes, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		// Campos não serializáveis: registra a mensagem sem eles.
		entry.Fields = nil
		jsonBytes, _ = json.Marshal(entry)
	}
	l.out.Println(string(jsonBytes))

	if level == "FATAL" {
		os.Exit(1)
	}
}

func (l *SimpleLogger) Debug(msg string, fields map[string]interface{}) {
	l.logf("DEBUG", msg, fields, nil)
}

func (l *SimpleLogger) Info(msg string, fields map[string]interface{}) {
	l.logf("INFO", msg, fields, nil)
}

func (l *SimpleLogger) Warn(msg string, fields map[string]interface{}) {
	l.logf("WARN", msg, fields, nil)
}

func (l *SimpleLogger) Error(msg string, err error) {
	l.logf("ERROR", msg, nil, err)
}

func (l *SimpleLogger) Fatal(msg string, err error) {
	l.logf("FATAL", msg, nil, err)
}
