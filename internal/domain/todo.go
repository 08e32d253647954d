package domain

import "time"

// TodoModel is the GORM model for the todos table.
type TodoModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Completed bool      `gorm:"not null;default:false"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for TodoModel.
func (TodoModel) TableName() string {
	return "todos"
}

// Todo is the API view of a todo item.
type Todo struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToTodo converts the model to its API view.
func (m *TodoModel) ToTodo() *Todo {
	return &Todo{
		ID:        m.ID,
		Title:     m.Title,
		Completed: m.Completed,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

// CreateTodoRequest is the payload for POST /todos.
type CreateTodoRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// UpdateTodoRequest is the payload for PUT /todos/:id.
// Absent fields leave the stored value unchanged.
type UpdateTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}
