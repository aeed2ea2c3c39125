package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotHoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hold_id",
			"instructor_id",
			"student_id",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"hold_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"instructor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"student_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
