package model

// Roles carried in the identity provider's tokens
const (
	RoleAdmin    = "admin"
	RoleRedactor = "redactor"
	RoleEmpleado = "empleado"
	RoleCliente  = "cliente"
)
