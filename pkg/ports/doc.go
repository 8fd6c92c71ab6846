/*
Package ports defines the driven ports (interfaces) of the decision flow.

These interfaces decouple the engine and the session manager from concrete
tree sources and storage backends.

# Key Interfaces

  - TreeLoader: supplies a validated tree (memory, local file, remote HTTP).
  - StateStore: persists and loads the flow state of a session.
  - DistributedLocker: serializes concurrent access to a session across replicas.
*/
package ports
