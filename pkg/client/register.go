package client

// init registers the built-in dialects with the default registry.
func init() {
	Register(newPostgres())
	Register(newPgx())
	Register(newMySQL())
	Register(newSQLite())
	Register(newMSSQL())
}
