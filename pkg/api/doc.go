// Package api implements the HTTP surface of the interrogation records
// service: registration and login, role-gated CRUD over interrogation
// records and users, audio upload with transcription, and Word document
// generation. All responses are JSON; errors carry a {message} body.
package api
