/*
Package ports defines the driven ports (interfaces) for the deed interview engine.

These interfaces decouple the engine from external implementations, allowing
it to work with various storage backends, extraction providers, and lock
coordinators.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading interview Sessions.
  - Extractor: The Extraction Gateway contract turning uploaded document
    bytes into structured fields.
  - DistributedLocker: Provides distributed locking for handling concurrent
    session access across replicas.
*/
package ports
