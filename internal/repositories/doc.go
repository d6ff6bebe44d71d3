// package repositories provides the sqlite persistence layer.
//
// The only durable state the application keeps is the cached OAuth token per
// service, so the schema is a single tokens table. Repositories receive an
// open *sql.DB and do not manage its lifecycle.
package repositories
