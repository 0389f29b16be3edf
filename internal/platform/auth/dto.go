package auth

type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type LoginResponse struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// UserForm は追加・更新共通。Username は更新時はパスから取る
type UserForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	IsAdmin  string `form:"is_admin" json:"is_admin"`
	IsActive string `form:"is_active" json:"is_active"`
}

type UserResponse struct {
	Message  string `json:"message,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}
