// Package somiod implements a resource-directory middleware for IoT-style
// applications: clients register a small resource hierarchy (applications own
// containers, containers own content instances and subscriptions) and receive
// asynchronous notifications over HTTP webhooks or MQTT whenever content
// instances are created or deleted inside a container they watch.
//
// It exposes a single Service interface covering resource lifecycle with
// cascading deletion, subscription matching with multi-transport fan-out, and
// path-based discovery. Repositories (memory, Postgres), transport senders
// (HTTP, pooled MQTT) and notification audit stores (memory, filesystem) are
// pluggable and provided under subpackages.
//
// Delivery Semantics
//
// Notification dispatch is fire and forget: one attempt per subscription, no
// ordering between subscriptions, and no coupling to the triggering request.
// An unreachable endpoint never makes a create or delete fail. Transport and
// audit-write errors are logged and swallowed inside the dispatcher.
package somiod
