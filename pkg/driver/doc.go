// Package driver provides graph database access for engram.
//
// The package defines the GraphDriver interface the rest of the library
// programs against and a Neo4j implementation built on the official bolt
// driver. Entity and episodic nodes are stored under the Entity and
// Episodic labels; entity relationships use RELATES_TO and episode
// mentions use MENTIONS. Fulltext and vector search go through native
// Neo4j indices created by BuildIndices.
//
// # Usage
//
//	drv, err := driver.NewNeo4j(uri, user, password, "neo4j")
//	if err != nil { ... }
//	defer drv.Close(ctx)
//
// # Thread Safety
//
// The Neo4j driver is safe for concurrent use. Each call opens a session
// against the configured database and closes it before returning.
package driver
