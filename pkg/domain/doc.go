/*
Package domain contains the core entity model of the deed interview engine.

It defines the fundamental entities of the interview, such as Sessions,
Parties (buyers and sellers), and Certificates, plus the shared error
taxonomy. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: Captures the runtime snapshot of one interview (current step,
    sequence counter, parties, certificates, history).
  - Party: A buyer or seller, either an individual or a company.
  - Certificate: A supporting document, party-level or property-level,
    presented (with extracted fields) or waived.
*/
package domain
