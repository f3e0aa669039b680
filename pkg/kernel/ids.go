package kernel

// UserID identifica a un estudiante durante toda su sesión de cliente
type UserID string

func (id UserID) String() string { return string(id) }

func (id UserID) IsEmpty() bool { return id == "" }

// ThreadID scopes one unit of conversational state inside the agent graph
type ThreadID string

func (id ThreadID) String() string { return string(id) }

func (id ThreadID) IsEmpty() bool { return id == "" }
