package shell

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

const (
	Title             = "সহায়ক বাংলা শিক্ষক"
	InputPrompt       = "আপনার প্রশ্নটি এখানে লিখুন..."
	ThinkingText      = "চিন্তা করছি..."
	memoryHeader      = "🧠 Long-Term Memory"
	memoryProfile     = "Current student profile:"
	memoryEmpty       = "No memory has been stored for this user yet. Start the conversation to build a profile!"
	memoryUnavailable = "Could not connect to the memory API."
)

// TerminalRenderer escribe la conversación como texto plano
type TerminalRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

// Banner prints the title and the session's user id
func (r *TerminalRenderer) Banner(userID kernel.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s\n%s\nuser_id: %s\n\n", Title, strings.Repeat("=", 40), userID)
}

func (r *TerminalRenderer) Message(msg ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := "🧑"
	if msg.Role == RoleAssistant {
		label = "🤖"
	}
	fmt.Fprintf(r.out, "%s %s\n\n", label, msg.Content)
}

func (r *TerminalRenderer) Thinking() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, ThinkingText)
}

func (r *TerminalRenderer) Error(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "⚠️  %s\n\n", text)
}

func (r *TerminalRenderer) Memory(view MemoryView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, memoryHeader)
	switch {
	case view.Err != nil:
		fmt.Fprintln(r.out, memoryUnavailable)
	case !view.Found:
		fmt.Fprintln(r.out, memoryEmpty)
	default:
		fmt.Fprintln(r.out, memoryProfile)
		encoded, err := json.MarshalIndent(view.Snapshot, "", "  ")
		if err != nil {
			fmt.Fprintln(r.out, memoryUnavailable)
			break
		}
		fmt.Fprintln(r.out, string(encoded))
	}
	fmt.Fprintln(r.out)
}
