/*
Command modelstore inspects the databases of applications using modelstore.

	modelstore dump people -c modelstore.yaml --where age=30
	modelstore watch people --path /var/lib/app/models.db
	modelstore version
*/
package main
