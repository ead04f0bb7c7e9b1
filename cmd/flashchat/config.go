package main

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	UserEmail      string `env:"USER_EMAIL,required=true"`
}
