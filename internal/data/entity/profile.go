package entity

type Role string

const (
	RoleMentee Role = "mentee"
	RoleMentor Role = "mentor"
	RoleAdmin  Role = "admin"
)

type Profile struct {
	BaseNoDelete
	Email    string `db:"email"`
	FullName string `db:"full_name"`
	Role     Role   `db:"role"`
}
