// Package policy holds the side-effect-free business rules of the delivery
// portal: who may touch a project, whether a project counts as paid, and
// which deliverable file a caller gets. Services call these once per
// operation; nothing here caches a decision.
package policy
