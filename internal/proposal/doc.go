// Package proposal defines the Eternal story record and its value objects.
//
// A Proposal is authored once through the wizard, frozen at finalization and
// read back by the viewer. It is never updated or deleted afterwards.
//
// # JSON Layout
//
// Proposals serialize with the camelCase keys used by the original browser
// client, so exports from the browser's local storage load unchanged:
//
//	{"id":"…","creatorName":"Alex","partnerName":"Sam","theme":"dark",
//	 "memories":[{"id":"…","date":"2019-06-01","title":"…","description":"…"}],
//	 "createdAt":1700000000000,"isPremium":false}
//
// Optional fields (musicUrl, password, expiryHours, memory imageUrl) are
// omitted when empty.
//
// # Identifiers
//
// IDs come from an IDGenerator. RandomGenerator encodes 128 random bits and is
// the default; LegacyGenerator reproduces the short base-36 ids of the original
// client and is only "hard to guess by casual browsing".
package proposal
