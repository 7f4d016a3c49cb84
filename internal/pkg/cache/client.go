package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client define o contrato de cache e pub/sub que os Repositórios e Serviços usam.
// As camadas de cima dependem apenas desta interface, nunca do redis diretamente.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	GetInt(ctx context.Context, key string) (int, error)
	Publish(ctx context.Context, channel string, payload string) error
	Subscribe(ctx context.Context, channel string) Subscription
}

// Notification é o que uma Subscription entrega.
// Resubscribed é verdadeiro quando a inscrição foi (re)confirmada pelo servidor:
// na primeira conexão e após cada reconexão. Nesse caso Payload é vazio.
type Notification struct {
	Payload      string
	Resubscribed bool
}

// Subscription representa uma inscrição ativa em um canal.
type Subscription interface {
	Notifications() <-chan Notification
	Close() error
}

// ErrCacheMiss é retornado quando a chave não é encontrada no cache.
var ErrCacheMiss = redis.Nil

// RedisClient é a implementação concreta da interface Client, usando Redis.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient cria o cliente e faz um PING de verificação.
// Uma falha no PING é devolvida junto com o cliente: o chamador decide se é fatal.
func NewRedisClient(addr string) (Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return &RedisClient{rdb: rdb}, err
	}
	return &RedisClient{rdb: rdb}, nil
}

// Get recupera o valor associado a uma chave.
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set define um valor para uma chave com um tempo de expiração.
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// Delete remove uma chave do cache.
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Incr incrementa um contador e devolve o novo valor.
func (c *RedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// GetInt lê um contador inteiro. Devolve ErrCacheMiss se a chave não existe.
func (c *RedisClient) GetInt(ctx context.Context, key string) (int, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}

// Publish envia uma mensagem para todos os inscritos no canal.
func (c *RedisClient) Publish(ctx context.Context, channel string, payload string) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe inscreve no canal e traduz as mensagens do redis em Notifications.
// O go-redis reconecta sozinho; cada confirmação de inscrição vira uma
// Notification com Resubscribed=true.
func (c *RedisClient) Subscribe(ctx context.Context, channel string) Subscription {
	ps := c.rdb.Subscribe(ctx, channel)
	sub := &redisSubscription{
		ps:  ps,
		out: make(chan Notification, 64),
	}
	go sub.pump(ctx)
	return sub
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan Notification
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.out)

	for raw := range s.ps.ChannelWithSubscriptions(ctx, 64) {
		var n Notification
		switch msg := raw.(type) {
		case *redis.Subscription:
			if msg.Kind != "subscribe" {
				continue
			}
			n = Notification{Resubscribed: true}
		case *redis.Message:
			n = Notification{Payload: msg.Payload}
		default:
			continue
		}

		select {
		case s.out <- n:
		case <-ctx.Done():
			return
		}
	}
}

func (s *redisSubscription) Notifications() <-chan Notification {
	return s.out
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
