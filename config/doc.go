/*
Package config reads configuration files naming storage configurations
and binding registered models to them. See File for the format.
*/
package config
