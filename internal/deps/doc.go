// Package deps resolves the external binaries voicescribe shells out to.
package deps
