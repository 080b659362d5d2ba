package dataaccess

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const (
	mongoDatabase = "lynx"

	// ticketsCollection is the collection that ticket records live in. Records
	// are never physically deleted; closed tickets are retained for audit.
	ticketsCollection = "tickets"
)
