// Package spec defines the RoomSpec data model and its validators.
//
// A RoomSpec is the declared desired state of a room: its entities,
// artifacts, and room-wide policies, versioned through metadata.version.
// Validate checks a single spec document for structural and semantic
// defects; ValidateUpgrade checks that one spec version is an acceptable
// successor to another. Both are pure functions returning results as
// values: a failed validation is data, never a panic or error return.
//
// A spec must pass Validate before the reconciler accepts it as desired
// state, and ValidateUpgrade before it replaces a previously accepted
// version.
package spec
