// Package database provides SQLite connectivity for the portal.
//
// This package manages:
//   - The connection, with WAL mode, foreign keys and immediate transactions
//   - Schema migrations read from an fs.FS (see the migrations package)
//   - Mapping SQLite constraint failures to typed values
//
// All queries use parameterised statements. The database file is chmod 0600.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
package database
