// Package auth provides the credential sources used to answer the embedded
// content's REQUEST_AUTH_TOKEN messages.
//
// A CredentialSource returns the current bearer token. Implementations:
//   - StaticToken: a fixed token, mostly for tests and local development
//   - TokenFunc: adapts a host callback (the usual "getAuthToken" hook)
//   - FileSource: reads a token file and reloads it when it changes on disk
//   - RedisSource: reads the token from a Redis key shared with a token minter
package auth
