package validators

import "go.mongodb.org/mongo-driver/bson"

var LessonValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"student_id",
			"instructor_id",
			"slot",
			"state",
			"version",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"student_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"instructor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"slot": bson.M{
				"bsonType": "object",
				"required": []string{"start", "duration"},
				"properties": bson.M{
					"start": bson.M{
						"bsonType": "date",
					},
					"duration": bson.M{
						"bsonType": "long",
						"minimum":  1,
					},
				},
			},

			"state": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"in_progress",
					"completed",
					"cancelled",
					"expired",
					"no_show",
				},
			},

			"version": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
