// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

/*
Package record contains the highlevel types used for tracking decoded MFT
records. A record is one fixed-size slot of the Master File Table; the types
here carry the decoded form of a slot (identity, status, base-record
reference, attributes) without retaining the raw bytes it was decoded from.
The same record may appear both as a classified record and as an extension
of another record, so nothing in this package assumes a record belongs to
exactly one collection.
*/
package record
