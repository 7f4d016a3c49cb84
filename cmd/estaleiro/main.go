// Command estaleiro reúne as ferramentas operacionais do Estaleiro MES:
// impressão da previsão de kitting e manutenção do cache de SLA.
package main

func main() {
	Execute()
}
