// Package shipment implements the parcel lifecycle: booking between
// two branches of an organization, status progression with a per-change
// history trail, and public tracking by tracking ID.
//
// Every shipment belongs to exactly one organization and moves from a
// source branch to a destination branch of that organization. The
// tracking ID is the public handle; no authentication is needed to
// track, so tracking reveals only shipment state, never tenant
// credentials or internals.
package shipment
