/*
Package ports defines the driven ports (interfaces) of the survey engine.

These interfaces decouple the navigation core from the places definitions come from,
where resources are looked up and where completed submissions end up.

# Key Interfaces

  - DefinitionLoader: Produces the survey Definition (file, memory, builder).
  - ResourceFinder: Looks up resources by categorization tags.
  - SubmissionStore: Receives completed submissions (memory, Redis, SQLite).
  - DistributedLocker: Serializes access to a session across replicas.

Each store port ships a reusable contract suite (RunSubmissionStoreContract) that
adapters run from their own tests.
*/
package ports
