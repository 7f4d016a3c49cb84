package domain

// UserRole é o papel do usuário, vindo das claims do token emitido pelo serviço de autenticação.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleLogistics  UserRole = "logistica"
	RoleProduction UserRole = "producao"
)
