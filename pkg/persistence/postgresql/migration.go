package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE modules (
				name VARCHAR(255) PRIMARY KEY,
				payload JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
		2: `
			-- Node and connection counts for listing without decoding payloads
			ALTER TABLE modules
				ADD COLUMN node_count INT NOT NULL DEFAULT 0,
				ADD COLUMN connection_count INT NOT NULL DEFAULT 0;

			CREATE INDEX idx_modules_updated_at ON modules(updated_at);
		`,
	}
}
