package utils

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes detailed records to a rotating workspace log while keeping the
// console output limited to process steps and user interactions. It is passed
// explicitly to every component; there is no global instance.
type Logger struct {
	logger                 *log.Logger
	userInteractionEnabled bool
}

// NewLogger creates a logger backed by a rotating log file under the given
// workspace directory. The skipPrompts parameter disables user interaction,
// which makes AskForConfirmation return its default answer.
func NewLogger(workDir string, skipPrompts bool) *Logger {
	logFile := &lumberjack.Logger{
		Filename:   workDir + "/workspace.log",
		MaxSize:    15, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return &Logger{
		logger:                 log.New(logFile, "", log.LstdFlags),
		userInteractionEnabled: !skipPrompts,
	}
}

// Close closes the underlying log file.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	w.logger.Print(message)
}

// Logf logs a formatted general message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	w.logger.Printf(format, v...)
}

func (w *Logger) LogError(err error) {
	w.logger.Printf("Error: %s", err)
}

// LogProcessStep logs the current step in a process and prints it to stdout.
func (w *Logger) LogProcessStep(step string) {
	w.logger.Printf("Process Step: %s", step)
	fmt.Println(step)
}

// LogUserInteraction logs user interactions that require a response, and prints to stdout.
func (w *Logger) LogUserInteraction(message string) {
	w.logger.Printf("User Interaction: %s", message)
	fmt.Print(message)
}

// AskForConfirmation prompts the user with a message and waits for a 'yes' or 'no'
// response. It returns the default response when user interaction is disabled.
func (w *Logger) AskForConfirmation(prompt string, defaultResponse bool) bool {
	if !w.userInteractionEnabled {
		w.Log("Skipping user confirmation in non-interactive mode.")
		return defaultResponse
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		w.LogUserInteraction(fmt.Sprintf("%s (yes/no): ", prompt))
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		switch response {
		case "yes", "y":
			return true
		case "no", "n":
			return false
		default:
			w.LogUserInteraction("Invalid input. Please type 'yes' or 'no'.\n")
		}
	}
}
