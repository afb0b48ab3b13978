// Package core provides the business logic for the transit directory.
//
// This package holds all domain logic independent of any transport layer.
// It can be used by web handlers, the CLI, or tests without modification.
//
// # Architecture
//
//   - Kinds: Stops, Lines, Vehicles and Positions are registered via the
//     registry, each with its positional import columns and build/merge rules.
//   - Service: the entry point for every operation (CRUD, nearby, import).
//     It owns the TokenSet and checks credentials before anything else.
//   - EntityStore: the storage contract. Stores enforce uniqueness, ranges,
//     references, key immutability and the delete cascade atomically per call.
//   - Reconciler: drives one import batch row by row, partitioning row ids
//     into valid and invalid without ever aborting on a row-level problem.
//
// # Kind Registry
//
// Kinds register at init time using [Register]. Each [KindDefinition]
// describes how to turn a field bag into a [Record] and how to merge one
// into a stored record:
//
//	core.Register(KindDefinition{
//	    Kind:     KindStop,
//	    KeyField: FieldID,
//	    Columns:  []string{FieldID, FieldName, FieldLatitude, FieldLongitude},
//	    Zero:     func() Record { return Stop{} },
//	    Apply:    applyStop,
//	})
//
// # Proximity Search
//
// [RankNearby] scans stops in the order the store returns them and applies
// a three-branch candidate policy: the first stop visited becomes the
// anchor; while the anchor is the only candidate and lies beyond
// [NearbyRadiusKm], a closer stop replaces it; otherwise stops within the
// radius are appended. The candidates are then stably sorted and capped at
// [NearbyLimit]. Results depend on visitation order.
//
// # Error Handling
//
// Every error wraps one of the sentinels in errors.go. [MapError] turns an
// error into a coded [UserMessage] for display.
package core
