package main

// @title           Kommand API
// @version         1.0
// @description     Interpretação e execução de comandos em inglês, hindi e hinglish para o marketplace

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
