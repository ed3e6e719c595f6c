package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/nestlyflow/nestlyflow-go/internal/groq"
	"github.com/nestlyflow/nestlyflow-go/internal/model"
)

const chatModel = "llama-3.3-70b-versatile"

const (
	loginRequiredReply = "You must be logged in to manage your to-do list. Please log in and try again."
	noTodosReply       = "You have no outstanding todos."
	unexpectedReply    = "Sorry, I ran into an unexpected issue."
	emptyModelReply    = "I'm not sure how to respond to that."
)

// ChatCompleter is the slice of the Groq client the chat service needs;
// tests substitute a fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req groq.ChatRequest) (*groq.ChatResponse, error)
}

// ChatService runs the conversational assistant: it forwards the
// conversation to the model with the todo tool schemas attached, executes
// at most one tool call per turn against the todo service, and asks the
// model for a final reply with tools disabled.
type ChatService struct {
	completer ChatCompleter
	todos     *TodoService
}

// NewChatService creates a new ChatService.
func NewChatService(completer ChatCompleter, todos *TodoService) *ChatService {
	return &ChatService{completer: completer, todos: todos}
}

// dueDateParser resolves free-form phrases like "tomorrow at 5pm".
var dueDateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// absoluteDueLayouts are tried before the natural-language parser so plain
// timestamps keep their exact value.
var absoluteDueLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDueDate turns a free-form date string into a timestamp. The second
// return value reports whether parsing succeeded.
func parseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range absoluteDueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	r, err := dueDateParser.Parse(s, time.Now())
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}

// Chat runs one assistant turn. The user may be nil (not logged in); tool
// calls then short-circuit into a fixed login prompt without store access.
func (s *ChatService) Chat(ctx context.Context, user *model.User, req model.ChatRequest) (model.ChatResponse, error) {
	messages := make([]groq.Message, 0, len(req.History)+3)
	messages = append(messages, groq.Message{Role: "system", Content: systemPrompt(user)})
	messages = append(messages, req.History...)
	messages = append(messages, groq.Message{Role: "user", Content: req.Message})

	resp, err := s.completer.CreateChatCompletion(ctx, groq.ChatRequest{
		Model:      chatModel,
		Messages:   messages,
		Tools:      todoTools,
		ToolChoice: "auto",
	})
	if err != nil {
		return model.ChatResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	assistantMsg := resp.Choices[0].Message
	messages = append(messages, assistantMsg)

	var final string
	if len(assistantMsg.ToolCalls) > 0 {
		// Execute the first tool call only; any extras are ignored.
		tc := assistantMsg.ToolCalls[0]
		result := s.dispatch(ctx, tc.Function.Name, tc.Function.Arguments, user)

		messages = append(messages, groq.Message{
			Role:       "tool",
			ToolCallID: tc.ID,
			Name:       tc.Function.Name,
			Content:    result,
		})

		secondResp, err := s.completer.CreateChatCompletion(ctx, groq.ChatRequest{
			Model:      chatModel,
			Messages:   messages,
			ToolChoice: "none",
		})
		if err != nil {
			return model.ChatResponse{}, fmt.Errorf("chat completion failed: %w", err)
		}

		final = secondResp.Choices[0].Message.Content
		if final == "" {
			final = emptyModelReply
		}
		messages = append(messages, groq.Message{Role: "assistant", Content: final})
	} else {
		final = assistantMsg.Content
		if final == "" {
			final = emptyModelReply
		}
	}

	// The system prompt is injected per request; return history without it.
	return model.ChatResponse{Response: final, History: messages[1:]}, nil
}

// dispatch executes one tool call and returns a human-readable outcome.
// Invalid user input (bad date, bad enum, missing argument, ambiguous
// title) comes back as ordinary text so the conversation continues;
// unexpected failures collapse into a generic apology.
func (s *ChatService) dispatch(ctx context.Context, action, rawArgs string, user *model.User) string {
	if user == nil {
		return loginRequiredReply
	}

	var args map[string]any
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			slog.Error("decoding tool arguments failed", "action", action, "error", err)
			return unexpectedReply
		}
	}

	// Free-form due dates are resolved up front; failure leaves the store
	// untouched.
	var dueAt *time.Time
	if action == "create_todo" || action == "update_todo" {
		if raw, ok := args["due_at"].(string); ok {
			parsed, ok := parseDueDate(raw)
			if !ok {
				return fmt.Sprintf("Could not understand the date '%s'. Please use a more specific format (e.g., 'tomorrow at 5pm', '2026-02-10').", raw)
			}
			dueAt = &parsed
		}
	}

	switch action {
	case "create_todo":
		return s.createTodo(ctx, args, dueAt, user)
	case "list_todos":
		return s.listTodos(ctx, user)
	case "update_todo":
		return s.updateTodo(ctx, args, dueAt, user)
	case "delete_todo":
		return s.deleteTodo(ctx, args, user)
	default:
		return fmt.Sprintf("Unknown action: %s", action)
	}
}

func (s *ChatService) createTodo(ctx context.Context, args map[string]any, dueAt *time.Time, user *model.User) string {
	title, _ := args["title"].(string)
	if title == "" {
		return "Please provide a title for the new todo."
	}

	priority, _ := args["priority"].(string)
	if priority == "" {
		priority = model.PriorityLow
	}
	if !model.ValidPriority(priority) {
		return fmt.Sprintf("Invalid priority '%s'. Allowed values are: %s.", priority, strings.Join(model.AllowedPriorities, ", "))
	}

	category, _ := args["category"].(string)
	if category == "" {
		category = model.CategoryOthers
	}
	if !model.ValidCategory(category) {
		return fmt.Sprintf("Invalid category '%s'. Allowed values are: %s.", category, strings.Join(model.AllowedCategories, ", "))
	}

	req := model.CreateTodoRequest{
		Title:    title,
		DueAt:    dueAt,
		Priority: priority,
		Category: category,
	}
	if desc, ok := args["description"].(string); ok {
		req.Description = &desc
	}

	created, err := s.todos.Create(ctx, user.ID, req)
	if err != nil {
		if isTodoValidationError(err) {
			return fmt.Sprintf("There was an issue creating the todo: %s.", err)
		}
		slog.Error("assistant create_todo failed", "error", err)
		return unexpectedReply
	}

	// The stored title may carry a uniqueness suffix.
	return fmt.Sprintf("Successfully created todo: '%s'.", created.Title)
}

func (s *ChatService) listTodos(ctx context.Context, user *model.User) string {
	todos, err := s.todos.ListAll(ctx, user.ID)
	if err != nil {
		slog.Error("assistant list_todos failed", "error", err)
		return unexpectedReply
	}
	if len(todos) == 0 {
		return noTodosReply
	}

	var b strings.Builder
	b.WriteString("Your todos:\n")
	for i, t := range todos {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (Priority: %s, Category: %s, Completed: %t)", t.Title, t.Priority, t.Category, t.Completed)
	}
	return b.String()
}

func (s *ChatService) updateTodo(ctx context.Context, args map[string]any, dueAt *time.Time, user *model.User) string {
	originalTitle, _ := args["original_title"].(string)
	if originalTitle == "" {
		return "Please provide the title of the todo you want to update."
	}

	// Build the typed patch; field names are reported back in this order.
	var patch model.TodoPatch
	var changed []string

	if newTitle, ok := args["new_title"].(string); ok {
		patch.Title = &newTitle
		changed = append(changed, "title")
	}
	if desc, ok := args["description"].(string); ok {
		patch.Description = &desc
		changed = append(changed, "description")
	}
	if dueAt != nil {
		patch.DueAt = dueAt
		changed = append(changed, "due_at")
	}
	if completed, ok := args["completed"].(bool); ok {
		patch.Completed = &completed
		changed = append(changed, "completed")
	}
	if priority, ok := args["priority"].(string); ok {
		if !model.ValidPriority(priority) {
			return fmt.Sprintf("Invalid priority '%s'. Allowed values are: %s.", priority, strings.Join(model.AllowedPriorities, ", "))
		}
		patch.Priority = &priority
		changed = append(changed, "priority")
	}
	if category, ok := args["category"].(string); ok {
		if !model.ValidCategory(category) {
			return fmt.Sprintf("Invalid category '%s'. Allowed values are: %s.", category, strings.Join(model.AllowedCategories, ", "))
		}
		patch.Category = &category
		changed = append(changed, "category")
	}

	if patch.IsZero() {
		return "Please provide at least one field to update (e.g., new title, description, due date, completed status, priority, or category)."
	}

	matches, err := s.todos.FindByTitle(ctx, user.ID, originalTitle)
	if err != nil {
		slog.Error("assistant update_todo lookup failed", "error", err)
		return unexpectedReply
	}

	switch len(matches) {
	case 0:
		return fmt.Sprintf("No todo found with title '%s' for your account.", originalTitle)
	case 1:
		// Fall through to the update below.
	default:
		return fmt.Sprintf("Multiple todos found with a title similar to '%s'. Please provide the exact title you wish to update from the following: %s.",
			originalTitle, quotedTitles(matches))
	}

	updated, err := s.todos.Update(ctx, user.ID, matches[0].ID, patch)
	if err != nil {
		if isTodoValidationError(err) {
			return fmt.Sprintf("There was an issue updating the todo: %s.", err)
		}
		slog.Error("assistant update_todo failed", "error", err)
		return unexpectedReply
	}

	if len(changed) == 1 && changed[0] == "completed" {
		return fmt.Sprintf("Successfully marked '%s' as complete.", updated.Title)
	}
	return fmt.Sprintf("Successfully updated '%s'. Changed fields: %s.", originalTitle, strings.Join(changed, ", "))
}

func (s *ChatService) deleteTodo(ctx context.Context, args map[string]any, user *model.User) string {
	title, _ := args["title"].(string)
	if title == "" {
		return "Please provide the title of the todo you want to delete."
	}

	matches, err := s.todos.FindByTitle(ctx, user.ID, title)
	if err != nil {
		slog.Error("assistant delete_todo lookup failed", "error", err)
		return unexpectedReply
	}

	switch len(matches) {
	case 0:
		return fmt.Sprintf("No todo found with title '%s' for your account.", title)
	case 1:
		// Fall through to the delete below.
	default:
		return fmt.Sprintf("Multiple todos found. Please provide the exact title: %s.", quotedTitles(matches))
	}

	if err := s.todos.Delete(ctx, user.ID, matches[0].ID); err != nil {
		slog.Error("assistant delete_todo failed", "error", err)
		return unexpectedReply
	}
	return fmt.Sprintf("Successfully deleted todo: '%s'.", matches[0].Title)
}

func isTodoValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrInvalidCategory)
}

// quotedTitles renders matching titles as 'A', 'B' for disambiguation
// prompts. Titles, never ids: the user can only act by exact title.
func quotedTitles(todos []model.Todo) string {
	quoted := make([]string, len(todos))
	for i, t := range todos {
		quoted[i] = "'" + t.Title + "'"
	}
	return strings.Join(quoted, ", ")
}

func systemPrompt(user *model.User) string {
	if user == nil {
		return `You are NestlyFlow's assistant, Flowy. The user is not logged in.
- To-do list actions (create, update, list, delete) require login.
- If the user asks to perform a to-do action, politely inform them they need to log in first.`
	}

	return fmt.Sprintf(`You are NestlyFlow's assistant, Flowy, speaking with %s.
- Your goal is to help the user manage their to-do list using the available tools. Be concise and friendly.
- To update a task, use the update_todo tool. You MUST provide the original_title of the task you want to modify.
- You can update the following fields: description, due_at, completed status, priority, or category.
- When a user provides a category or priority, you must validate it against the allowed values.
- Allowed priorities: 'low', 'medium', 'high'. If not specified, default to 'low'.
- Allowed categories: 'work', 'personal', 'study', 'home', 'health', 'shopping', 'others'. If not specified, default to 'others'.
- If the user specifies an invalid value for priority or category, you must inform them of the allowed options.
- ONLY use the new_title parameter if the user explicitly asks to RENAME or CHANGE THE TITLE of the todo.
- For marking tasks complete, use update_todo with completed=true.
- If multiple todos match a title, you MUST ask for clarification. Do not mention "id".`, user.Username)
}

// todoTools are the four tool schemas handed to the model. The dispatcher
// validates everything again; these schemas only steer the model.
var todoTools = []groq.Tool{
	{
		Type: "function",
		Function: groq.Function{
			Name:        "create_todo",
			Description: "Create a new to-do item.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"},
					"due_at": {"type": "string", "description": "Natural language due date (e.g., 'tomorrow at 5pm')."},
					"priority": {"type": "string", "enum": ["low", "medium", "high"]},
					"category": {"type": "string", "enum": ["work", "personal", "study", "home", "health", "shopping", "others"]}
				},
				"required": ["title"]
			}`),
		},
	},
	{
		Type: "function",
		Function: groq.Function{
			Name:        "list_todos",
			Description: "List all to-do items for the user.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
	},
	{
		Type: "function",
		Function: groq.Function{
			Name:        "update_todo",
			Description: "Update an existing to-do item.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"original_title": {"type": "string", "description": "The current title of the todo to update."},
					"new_title": {"type": "string", "description": "The new title for the todo."},
					"description": {"type": "string", "description": "The new description for the todo."},
					"due_at": {"type": "string", "description": "The new due date (e.g., 'in 2 days' or 'next Friday')."},
					"completed": {"type": "boolean", "description": "Set to true to mark as complete, false to mark as incomplete."},
					"priority": {"type": "string", "enum": ["low", "medium", "high"]},
					"category": {"type": "string", "enum": ["work", "personal", "study", "home", "health", "shopping", "others"]}
				},
				"required": ["original_title"]
			}`),
		},
	},
	{
		Type: "function",
		Function: groq.Function{
			Name:        "delete_todo",
			Description: "Delete a to-do item by its title.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {"title": {"type": "string"}},
				"required": ["title"]
			}`),
		},
	},
}
