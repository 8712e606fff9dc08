/*
Package query builds predicates over stored models.

Queries are evaluated against the JSON form of each record, so field names
are the JSON names of the model fields and nested fields are addressed
with dots:

	q := query.New().
	    GreaterThanOrEqual("age", 18).
	    BeginsWith("name", "A").
	    Or().
	    EqualTo("address.city", "Berlin").
	    SortBy("name", true).
	    Limit(10)

Predicates within a group are ANDed, groups separated by Or are ORed and
Not negates the predicate following it. Operands are normalized to their
JSON representation. Numbers compare by exact value, so 3 equals 3.0
and integers beyond 2^53 stay distinct.
*/
package query
