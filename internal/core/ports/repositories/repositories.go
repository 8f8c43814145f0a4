package repositories

// RepositoryProvider holds all repository interfaces needed by services.
type RepositoryProvider struct {
	LedgerRepo LedgerRepositoryWithTx
}
